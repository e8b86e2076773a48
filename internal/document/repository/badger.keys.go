package repository

import (
	"encoding/binary"

	"writer/internal/document/model"
)

// Key layout of the embedded store. Ids are big-endian so that key order is id order.
const (
	docPrefix        = "doc:"
	titleIndexPrefix = "idx:" + model.TitleIndex + ":"
	nextIDKey        = "meta:next-id"
	schemaVersionKey = "meta:schema-version"
)

// maxIndexedTitle bounds the title bytes kept in an index key. Longer titles
// are cut and ordered by their prefix, then id; the record holds the full title.
const maxIndexedTitle = 1024

// makeDocKey generates the primary key of a document.
// Format: doc:id
func makeDocKey(id int64) []byte {
	buf := make([]byte, len(docPrefix)+8)
	offset := copy(buf, docPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeTitleKey generates a composite key for the title index.
// Format: idx:by-title:title\x00id
func makeTitleKey(title string, id int64) []byte {
	if len(title) > maxIndexedTitle {
		title = title[:maxIndexedTitle]
	}
	buf := make([]byte, len(titleIndexPrefix)+len(title)+1+8)
	offset := copy(buf, titleIndexPrefix)
	offset += copy(buf[offset:], title)
	buf[offset] = 0
	binary.BigEndian.PutUint64(buf[offset+1:], uint64(id))
	return buf
}

// parseTitleKey splits a title index key back into title and id. A title of
// maxIndexedTitle bytes may have been cut.
func parseTitleKey(key []byte) (string, int64, bool) {
	if len(key) < len(titleIndexPrefix)+9 {
		return "", 0, false
	}
	title := key[len(titleIndexPrefix) : len(key)-9]
	if key[len(key)-9] != 0 {
		return "", 0, false
	}
	return string(title), int64(binary.BigEndian.Uint64(key[len(key)-8:])), true
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
