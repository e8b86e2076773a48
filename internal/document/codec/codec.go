// Package codec turns documents into the bytes kept by the embedded store.
//
// Records are JSON objects. Content larger than CompressThreshold is zstd
// compressed and stored under "z" instead of "c"; the title always stays
// readable so the index can be rebuilt from records alone.
package codec

import (
	"encoding/binary"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"writer/internal/document/model"
)

// CompressThreshold is the content size, in bytes, above which content is compressed.
const CompressThreshold = 512

var ErrCorruptRecord = errors.New("corrupt document record")

// Both are safe for concurrent use and expensive to build.
var (
	zstdEncoder = mustEncoder()
	zstdDecoder = mustDecoder()
)

func mustEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Sprintf("codec: zstd encoder: %v", err))
	}
	return enc
}

func mustDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("codec: zstd decoder: %v", err))
	}
	return dec
}

type record struct {
	ID         int64              `json:"id"`
	Title      string             `json:"t"`
	Content    stdjson.RawMessage `json:"c,omitempty"`
	Compressed []byte             `json:"z,omitempty"`
}

// Encode serialises a document. The document must already carry its id.
func Encode(doc model.Document) ([]byte, error) {
	rec := record{ID: doc.ID, Title: doc.Title}
	content := doc.Content
	if len(content) == 0 {
		content = stdjson.RawMessage("null")
	}
	if len(content) > CompressThreshold {
		rec.Compressed = zstdEncoder.EncodeAll(content, nil)
	} else {
		rec.Content = content
	}
	return json.Marshal(rec)
}

// Decode reverses Encode.
func Decode(data []byte) (*model.Document, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}

	doc := &model.Document{ID: rec.ID, Title: rec.Title, Content: rec.Content}
	if len(rec.Compressed) > 0 {
		content, err := zstdDecoder.DecodeAll(rec.Compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptRecord, err)
		}
		doc.Content = content
	}
	if len(doc.Content) == 0 {
		doc.Content = stdjson.RawMessage("null")
	}
	return doc, nil
}

// DecodeSummary reads only the id and title of a record.
func DecodeSummary(data []byte) (model.DocumentSummary, error) {
	var head struct {
		ID    int64  `json:"id"`
		Title string `json:"t"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return model.DocumentSummary{}, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return model.DocumentSummary{ID: head.ID, Title: head.Title}, nil
}

// Digest returns a 16 hex character xxh3 hash of a document as served,
// covering its id, title and content.
func Digest(doc model.Document) string {
	h := xxh3.New()
	var head [16]byte
	binary.BigEndian.PutUint64(head[:8], uint64(doc.ID))
	binary.BigEndian.PutUint64(head[8:], uint64(len(doc.Title)))
	h.Write(head[:])
	h.WriteString(doc.Title)
	h.Write(doc.Content)
	return fmt.Sprintf("%016x", h.Sum64())
}

// ETag quotes Digest for use in an HTTP header.
func ETag(doc model.Document) string {
	return strconv.Quote(Digest(doc))
}
