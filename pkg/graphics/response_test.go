package graphics

import "testing"

func TestResultFormatOK(t *testing.T) {
	cmd := &command{hasImageID: true, imageID: 7}
	r := (&Result{}).withHeaders(cmd).ok()
	got := r.format()
	want := "\x1b_Gi=7;OK\x1b\\"
	if got != want {
		t.Errorf("format() = %q, want %q", got, want)
	}
}

func TestResultFormatError(t *testing.T) {
	cmd := &command{hasImageID: true, imageID: 7}
	r := (&Result{}).withHeaders(cmd).fail(newError(CodeEINVAL, "the size of the uploaded image 9 doesn't match the expected size 12"))
	got := r.format()
	want := "\x1b_Gi=7;EINVAL: the size of the uploaded image 9 doesn't match the expected size 12\x1b\\"
	if got != want {
		t.Errorf("format() = %q, want %q", got, want)
	}
}

func TestResultQuietSuppressesOK(t *testing.T) {
	cmd := &command{quiet: QuietOK}
	r := (&Result{}).withHeaders(cmd).ok()
	if got := r.format(); got != "" {
		t.Errorf("format() = %q, want empty", got)
	}
}

func TestResultQuietEverythingSuppressesError(t *testing.T) {
	cmd := &command{quiet: QuietEverything}
	r := (&Result{}).withHeaders(cmd).fail(newError(CodeENOENT, "not found"))
	if got := r.format(); got != "" {
		t.Errorf("format() = %q, want empty", got)
	}
}

func TestResultQuietOneStillEmitsError(t *testing.T) {
	cmd := &command{quiet: QuietOK}
	r := (&Result{}).withHeaders(cmd).fail(newError(CodeENOENT, "not found"))
	if got := r.format(); got == "" {
		t.Error("format() = empty, want error response at quiet=1")
	}
}

func TestResultSuppressOverridesQuietNone(t *testing.T) {
	r := (&Result{}).ok().suppress()
	if got := r.format(); got != "" {
		t.Errorf("format() = %q, want empty", got)
	}
}

func TestResultHeaderOrder(t *testing.T) {
	cmd := &command{hasImageID: true, imageID: 1, hasImageNumber: true, imageNumber: 2, hasPlacementID: true, placementID: 3}
	r := (&Result{}).withHeaders(cmd).ok()
	got := r.format()
	want := "\x1b_Gi=1,I=2,p=3;OK\x1b\\"
	if got != want {
		t.Errorf("format() = %q, want %q", got, want)
	}
}
