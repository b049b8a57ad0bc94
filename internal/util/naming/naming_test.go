package naming

import "testing"

func TestValidateTag(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		wantErr bool
	}{
		{name: "simple", tag: "web", wantErr: false},
		{name: "alphanumeric", tag: "web01", wantErr: false},
		{name: "empty", tag: "", wantErr: true},
		{name: "hyphen", tag: "web-01", wantErr: true},
		{name: "only hyphen", tag: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTag(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTag(%q) = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
		})
	}
}

func TestNamingFunctions(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{name: "KeyPair", got: KeyPair("web"), expected: "web"},
		{name: "SecurityGroup", got: SecurityGroup("web"), expected: "web"},
		{name: "Node", got: Node("web", "i-0abc"), expected: "web-i-0abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, expected %q", tt.got, tt.expected)
			}
		})
	}
}

func TestTagFromNode(t *testing.T) {
	tag, ok := TagFromNode("web-i-0abc")
	if !ok || tag != "web" {
		t.Errorf("TagFromNode(web-i-0abc) = %q, %v", tag, ok)
	}

	if _, ok := TagFromNode("plainname"); ok {
		t.Error("expected no tag for name without separator")
	}
}
