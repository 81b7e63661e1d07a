package fetch

import (
	"regexp"
	"strconv"
)

// These regexes read a metadata dictionary by substring match rather
// than a full bencode parse, which would require the exact key
// ordering and any extraneous keys to round trip cleanly.
var (
	nameUTF8Re = regexp.MustCompile(`(?i):name\.utf-8(\d+):`)
	nameRe     = regexp.MustCompile(`(?i):name(\d+):`)
	lengthRe   = regexp.MustCompile(`(?i):lengthi(\d+)e`)
)

// parseMetadata extracts a torrent name and total size from a raw
// metadata dictionary. name.utf-8 is preferred over the legacy name
// key when both are present. Size is the sum of every "length" value
// found, which covers both single-file torrents (one length at the
// top level) and multi-file ones (one length per file entry).
func parseMetadata(data []byte) (name []byte, size uint64) {
	if loc := nameUTF8Re.FindSubmatchIndex(data); loc != nil {
		name = sliceByLength(data, loc)
	} else if loc := nameRe.FindSubmatchIndex(data); loc != nil {
		name = sliceByLength(data, loc)
	}

	for _, m := range lengthRe.FindAllSubmatch(data, -1) {
		n, err := strconv.ParseUint(string(m[1]), 10, 64)
		if err == nil {
			size += n
		}
	}
	return name, size
}

// sliceByLength reads the bencode string-length capture out of loc and
// returns the that many bytes immediately following the matched
// "name<N>:" prefix.
func sliceByLength(data []byte, loc []int) []byte {
	n, err := strconv.Atoi(string(data[loc[2]:loc[3]]))
	if err != nil || n < 0 {
		return nil
	}
	start := loc[1]
	end := start + n
	if end > len(data) {
		return nil
	}
	return data[start:end]
}
