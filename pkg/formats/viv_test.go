package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// makeViv builds an archive with the given named bodies.
func makeViv(entries map[string][]byte, names []string) []byte {
	var directory bytes.Buffer
	var bodies bytes.Buffer

	headerSize := vivHeaderSize
	for _, name := range names {
		headerSize += 8 + len(name) + 1
	}
	for _, name := range names {
		body := entries[name]
		binary.Write(&directory, binary.BigEndian, uint32(headerSize+bodies.Len()))
		binary.Write(&directory, binary.BigEndian, uint32(len(body)))
		directory.WriteString(name)
		directory.WriteByte(0)
		bodies.Write(body)
	}

	var buf bytes.Buffer
	buf.WriteString("BIGF")
	binary.Write(&buf, binary.BigEndian, uint32(headerSize+bodies.Len()))
	binary.Write(&buf, binary.BigEndian, uint32(len(names)))
	binary.Write(&buf, binary.BigEndian, uint32(headerSize))
	buf.Write(directory.Bytes())
	buf.Write(bodies.Bytes())
	return buf.Bytes()
}

func TestParseViv(t *testing.T) {
	data := makeViv(map[string][]byte{
		"car.fce":  []byte("mesh"),
		"carp.txt": []byte("performance"),
	}, []string{"car.fce", "carp.txt"})

	viv, err := ParseViv(data)
	if err != nil {
		t.Fatalf("ParseViv() error = %v", err)
	}
	if len(viv.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(viv.Entries))
	}
	if viv.Entries[0].Name != "car.fce" || string(viv.Entries[0].Body) != "mesh" {
		t.Errorf("entry 0 = %q %q", viv.Entries[0].Name, viv.Entries[0].Body)
	}

	entry, ok := viv.Entry("carp.txt")
	if !ok {
		t.Fatal("Entry(carp.txt) not found")
	}
	if string(entry.Body) != "performance" {
		t.Errorf("Entry body = %q", entry.Body)
	}
	if _, ok := viv.Entry("missing"); ok {
		t.Error("Entry(missing) found, want miss")
	}
}

func TestParseVivErrors(t *testing.T) {
	if _, err := ParseViv([]byte("BIG")); !errors.Is(err, ErrTruncatedViv) {
		t.Errorf("short error = %v, want ErrTruncatedViv", err)
	}
	bad := makeViv(map[string][]byte{"a": []byte("x")}, []string{"a"})
	copy(bad, "NOPE")
	if _, err := ParseViv(bad); !errors.Is(err, ErrInvalidVivMagic) {
		t.Errorf("bad magic error = %v, want ErrInvalidVivMagic", err)
	}

	data := makeViv(map[string][]byte{"a": []byte("xyz")}, []string{"a"})
	if _, err := ParseViv(data[:len(data)-2]); !errors.Is(err, ErrTruncatedViv) {
		t.Errorf("cut body error = %v, want ErrTruncatedViv", err)
	}
}
