package fetch

import (
	"bytes"
	"testing"
)

func TestParseMetadataSingleFile(t *testing.T) {
	data := []byte("d6:lengthi1048576e4:name8:hello.mpe")
	name, size := parseMetadata(data)
	if string(name) != "hello.mp" {
		t.Errorf("name = %q, want %q", name, "hello.mp")
	}
	if size != 1048576 {
		t.Errorf("size = %d, want %d", size, 1048576)
	}
}

func TestParseMetadataMultiFilePrefersUTF8Name(t *testing.T) {
	data := []byte("d5:filesld6:lengthi100eed6:lengthi250eee10:name.utf-84:teste")
	name, size := parseMetadata(data)
	if string(name) != "test" {
		t.Errorf("name = %q, want %q", name, "test")
	}
	if size != 350 {
		t.Errorf("size = %d, want %d", size, 350)
	}
}

func TestParseMetadataEmptyYieldsNothing(t *testing.T) {
	name, size := parseMetadata(nil)
	if len(name) != 0 || size != 0 {
		t.Errorf("expected empty metadata to parse to nothing, got name=%q size=%d", name, size)
	}
}

func TestIndexOfDictEnd(t *testing.T) {
	chunk := []byte("d8:msg_typei0e5:piecei0eeRAWBYTES")
	idx := indexOfDictEnd(chunk)
	if idx < 0 {
		t.Fatal("expected to find the dictionary terminator")
	}
	if !bytes.Equal(chunk[idx:], []byte("RAWBYTES")) {
		t.Errorf("payload after dict end = %q, want %q", chunk[idx:], "RAWBYTES")
	}
}
