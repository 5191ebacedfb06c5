package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"iter"
)

// ChunkSize is the read size used by DigestReader.
const ChunkSize = 64 * 1024

// Digest returns the lowercase hex SHA-256 of salt followed by text.
func Digest(text, salt string) string {
	h := sha256.New()
	io.WriteString(h, salt)
	io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

// DigestChunks hashes salt followed by the concatenation of chunks. The result
// equals Digest over the joined content.
func DigestChunks(chunks iter.Seq[[]byte], salt string) string {
	h := sha256.New()
	io.WriteString(h, salt)
	for chunk := range chunks {
		h.Write(chunk)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DigestReader streams r in ChunkSize reads. It returns the digest and the
// number of content bytes consumed.
func DigestReader(r io.Reader, salt string) (string, int64, error) {
	var (
		n       int64
		readErr error
	)
	chunks := func(yield func([]byte) bool) {
		buf := make([]byte, ChunkSize)
		for {
			read, err := r.Read(buf)
			if read > 0 {
				n += int64(read)
				if !yield(buf[:read]) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr = err
				}
				return
			}
		}
	}
	sum := DigestChunks(chunks, salt)
	if readErr != nil {
		return "", n, readErr
	}
	return sum, n, nil
}
