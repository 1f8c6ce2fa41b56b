package graphics

import "testing"

func TestParseCommandBasicFields(t *testing.T) {
	cmd, err := parseCommand([]byte("Gi=7,a=t,f=100,t=d,m=1,S=9;YWJj"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.action != 't' {
		t.Errorf("action = %q, want 't'", cmd.action)
	}
	if !cmd.hasImageID || cmd.imageID != 7 {
		t.Errorf("imageID = %d (has=%v), want 7", cmd.imageID, cmd.hasImageID)
	}
	if cmd.format != FormatFile {
		t.Errorf("format = %d, want FormatFile", cmd.format)
	}
	if cmd.medium != 'd' {
		t.Errorf("medium = %q, want 'd'", cmd.medium)
	}
	if !cmd.hasMore || !cmd.more {
		t.Errorf("more = %v (has=%v), want true", cmd.more, cmd.hasMore)
	}
	if cmd.expectSize != 9 {
		t.Errorf("expectSize = %d, want 9", cmd.expectSize)
	}
	if string(cmd.payload) != "YWJj" {
		t.Errorf("payload = %q, want %q", cmd.payload, "YWJj")
	}
}

func TestParseCommandContinuationChunk(t *testing.T) {
	cmd, err := parseCommand([]byte("Gm=0;Z2hp"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.action != 0 {
		t.Errorf("action = %q, want zero value", cmd.action)
	}
	if !cmd.hasMore || cmd.more {
		t.Errorf("hasMore/more = %v/%v, want true/false", cmd.hasMore, cmd.more)
	}
}

func TestParseCommandMissingSentinel(t *testing.T) {
	if _, err := parseCommand([]byte("i=7,a=t;AA")); err == nil {
		t.Fatal("expected error for missing 'G' sentinel")
	}
}

func TestParseCommandIgnoredKeys(t *testing.T) {
	cmd, err := parseCommand([]byte("Ga=q,X=5,Y=3,z=1;AA=="))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.action != 'q' {
		t.Errorf("action = %q, want 'q'", cmd.action)
	}
}

func TestParseCommandUnsupportedKey(t *testing.T) {
	if _, err := parseCommand([]byte("Gk=1,a=t;AA==")); err == nil {
		t.Fatal("expected EINVAL for unsupported key")
	}
}

func TestParseCommandBadFormat(t *testing.T) {
	if _, err := parseCommand([]byte("Gf=7,a=t;AA==")); err == nil {
		t.Fatal("expected EINVAL for unsupported format")
	}
}

func TestParseCommandNonDecimalValue(t *testing.T) {
	if _, err := parseCommand([]byte("Gi=x,a=t;AA==")); err == nil {
		t.Fatal("expected EINVAL for non-decimal value")
	}
}

func TestParseCommandWrongLengthChar(t *testing.T) {
	if _, err := parseCommand([]byte("Ga=tt;AA==")); err == nil {
		t.Fatal("expected EINVAL for multi-character 'a' value")
	}
}

func TestParseCommandEmptyPair(t *testing.T) {
	if _, err := parseCommand([]byte("Ga=t,,f=0;AA==")); err == nil {
		t.Fatal("expected EINVAL for empty key=value pair")
	}
}

func TestParseCommandNoKeyValueSection(t *testing.T) {
	cmd, err := parseCommand([]byte("G;AA=="))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.action != 0 {
		t.Errorf("action = %q, want zero value", cmd.action)
	}
}
