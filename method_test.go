package entitle

import "testing"

func TestParseMethodKey(t *testing.T) {
	tests := []struct {
		in      string
		want    MethodKey
		wantErr bool
	}{
		{in: "delete", want: MethodKey{Name: "delete"}},
		{in: "spin(I)I", want: MethodKey{Name: "spin", Descriptor: "(I)I"}},
		{in: "java/io/File.delete", want: MethodKey{Owner: "java/io/File", Name: "delete"}},
		{in: "java.io.File.list()[Ljava/lang/String;", want: MethodKey{Owner: "java/io/File", Name: "list", Descriptor: "()[Ljava/lang/String;"}},
		{in: "a/B.<init>()V", want: MethodKey{Owner: "a/B", Name: "<init>", Descriptor: "()V"}},
		{in: "", wantErr: true},
		{in: "a/B.", wantErr: true},
		{in: "delete(", wantErr: true},
		{in: "(I)V", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethodKey(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseMethodKey(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMethodKey(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMethodKey(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMethodKeyMatches(t *testing.T) {
	tests := []struct {
		key               MethodKey
		owner, name, desc string
		want              bool
	}{
		{MethodKey{Name: "m"}, "a/B", "m", "()V", true},
		{MethodKey{Name: "m"}, "a/B", "n", "()V", false},
		{MethodKey{Name: "m", Descriptor: "()V"}, "a/B", "m", "(I)V", false},
		{MethodKey{Owner: "a/B", Name: "m"}, "a/B", "m", "(I)V", true},
		{MethodKey{Owner: "a/B", Name: "m"}, "a/C", "m", "()V", false},
		{MethodKey{Owner: "a/B", Name: "m", Descriptor: "()V"}, "a/B", "m", "()V", true},
	}
	for _, tt := range tests {
		if got := tt.key.Matches(tt.owner, tt.name, tt.desc); got != tt.want {
			t.Errorf("%v.Matches(%s, %s, %s) = %v, want %v", tt.key, tt.owner, tt.name, tt.desc, got, tt.want)
		}
	}
}

func TestMethodKeyString(t *testing.T) {
	k := MethodKey{Owner: "java/io/File", Name: "delete", Descriptor: "()Z"}
	if got := k.String(); got != "java/io/File.delete()Z" {
		t.Errorf("String() = %q", got)
	}
}
