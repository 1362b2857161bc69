// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/devblok/korures/utility/kar"
	"github.com/pkg/errors"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	for _, name := range order {
		if err := builder.Add(name, bytes.NewReader([]byte(files[name]))); err != nil {
			t.Fatal(err)
		}
	}

	buf := bytes.NewBuffer([]byte{})
	if written, err := builder.WriteTo(buf); err != nil {
		t.Fatal(err)
	} else {
		t.Logf("written %d", written)
	}
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"test":  testString1,
		"test2": testString2,
	}, "test", "test2")

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	f, err := ar.Open("test2")
	if err != nil {
		t.Fatal(err)
	}
	if err := readFileAndCompare(f, testString2); err != nil {
		t.Error(err)
	}
}

func TestCreateAndReadAll(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"test":  testString1,
		"test2": testString2,
	}, "test", "test2")

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	for name, expected := range map[string]string{"test": testString1, "test2": testString2} {
		f, err := ar.ReadAll(name)
		if err != nil {
			t.Fatal(err)
		}
		if string(f) != expected {
			t.Errorf("%s: test string does not match up", name)
		}
	}

	if header := ar.Header(); header.Author != "devblok" || header.Version != 1 {
		t.Errorf("header not preserved: %+v", header)
	}
	if names := ar.List(); len(names) != 2 || names[0] != "test" || names[1] != "test2" {
		t.Errorf("unexpected listing: %v", names)
	}
}

func TestReadMissing(t *testing.T) {
	data := buildArchive(t, map[string]string{"test": testString1}, "test")

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if ar.Has("nope") {
		t.Error("archive reports a file it does not have")
	}
	if _, err := ar.ReadAll("nope"); !errors.Is(err, kar.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestOpenNotAnArchive(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("PK\x03\x04 definitely a zip"),
		[]byte("KA"),
		append([]byte("KAR\x00"), 0xff, 0xff, 0xff, 0x00, 0, 0, 0, 0),
	} {
		if _, err := kar.Open(bytes.NewReader(data)); err == nil {
			t.Errorf("opened %q", data)
		}
	}
}

func TestChecksumMismatch(t *testing.T) {
	data := buildArchive(t, map[string]string{"test": testString1}, "test")

	// The lz4 frame ends with the end mark and the content checksum,
	// the byte before them belongs to the last data block.
	data[len(data)-9] ^= 0xff

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ar.ReadAll("test"); err == nil {
		t.Error("corrupted file was read without error")
	}
}
