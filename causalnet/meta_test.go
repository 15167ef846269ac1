package causal

import (
	"strings"
	"testing"
)

func TestInferencer_ExecLog(t *testing.T) {
	d := New(testConf())
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}

	inferer, err := Infer(d, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	defer inferer.Close()

	if inferer.ExecLog() != "" {
		t.Error("Should not have any logs")
	}
}

func TestInferencerBadWindow(t *testing.T) {
	d := New(testConf())
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}

	inferer, err := Infer(d, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	defer inferer.Close()

	if _, err := inferer.Infer(make([]float32, 3)); err == nil {
		t.Fatal("expected an error for a malformed window")
	} else if !strings.Contains(err.Error(), "bad window") {
		t.Errorf("unhelpful error: %v", err)
	}
}

func TestToDot(t *testing.T) {
	d := New(testConf())
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	dot := d.ToDot()
	for _, want := range []string{"Window", "Enc0", "Dec0", "Frame"} {
		if !strings.Contains(dot, want) {
			t.Errorf("architecture dump is missing stage %q", want)
		}
	}
}
