package metadb

import "testing"

func TestWriteGeneralSection(t *testing.T) {
	l, sink := newTestLayout()
	st := NewStringTable()
	hdr, err := NewDeferred(l, fileHeaderCodec, fileHeaderSize)
	if err != nil {
		t.Fatal(err)
	}

	if err := writeGeneralSection(l, st, Attributes{Name: "my-run", Description: "a test run"}, hdr); err != nil {
		t.Fatal(err)
	}
	base, err := st.Emit(l)
	if err != nil {
		t.Fatal(err)
	}

	data := readAll(sink)
	sec := hdr.Value().sections[sectionGeneral]
	if sec.size != generalSectionSize {
		t.Fatalf("general section size = %d, want %d", sec.size, generalSectionSize)
	}
	nameRel := getU64(data[sec.offset:])
	if got := cStringAt(data, base+nameRel); got != "my-run" {
		t.Fatalf("general section name = %q, want %q", got, "my-run")
	}
	descRel := getU64(data[sec.offset+8:])
	if got := cStringAt(data, base+descRel); got != "a test run" {
		t.Fatalf("general section description = %q, want %q", got, "a test run")
	}
}

func TestWriteGeneralSectionDefaultsUnnamedRun(t *testing.T) {
	l, sink := newTestLayout()
	st := NewStringTable()
	hdr, err := NewDeferred(l, fileHeaderCodec, fileHeaderSize)
	if err != nil {
		t.Fatal(err)
	}
	if err := writeGeneralSection(l, st, Attributes{}, hdr); err != nil {
		t.Fatal(err)
	}
	base, err := st.Emit(l)
	if err != nil {
		t.Fatal(err)
	}
	data := readAll(sink)
	sec := hdr.Value().sections[sectionGeneral]
	nameRel := getU64(data[sec.offset:])
	if got := cStringAt(data, base+nameRel); got != "<unnamed>" {
		t.Fatalf("default name = %q, want %q", got, "<unnamed>")
	}
	descRel := getU64(data[sec.offset+8:])
	if got := cStringAt(data, base+descRel); got != "TODO database description" {
		t.Fatalf("default description = %q, want %q", got, "TODO database description")
	}
}

func cStringAt(data []byte, off uint64) string {
	end := off
	for data[end] != 0 {
		end++
	}
	return string(data[off:end])
}
