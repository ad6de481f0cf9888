package procedure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/hoc/internal/vars"
)

func TestParseOutputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stdout string
		want   []vars.Value
	}{
		{
			name:   "no markers",
			stdout: "installing...\ndone\n",
			want:   nil,
		},
		{
			name:   "plain and secret",
			stdout: "[hoc]:out:ip=10.0.0.1\nnoise\n[hoc]:secret:token=abc=def\n",
			want: []vars.Value{
				{Name: "ip", Data: "10.0.0.1"},
				{Name: "token", Data: "abc=def", Secret: true},
			},
		},
		{
			name:   "last line wins",
			stdout: "[hoc]:out:ip=1\n[hoc]:out:port=22\n[hoc]:out:ip=2\n",
			want: []vars.Value{
				{Name: "ip", Data: "2"},
				{Name: "port", Data: "22"},
			},
		},
		{
			name:   "crlf and empty value",
			stdout: "[hoc]:out:empty=\r\n",
			want:   []vars.Value{{Name: "empty", Data: ""}},
		},
		{
			name:   "malformed lines ignored",
			stdout: "[hoc]:out:novalue\n[hoc]:out:=x\n [hoc]:out:indented=1\n[hoc]:out:bad name=1\n",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseOutputs(tt.stdout))
		})
	}
}

func TestScrubSecretOutputs(t *testing.T) {
	t.Parallel()

	in := "ok\n[hoc]:secret:token=abc\n[hoc]:out:ip=1\n"
	got := scrubSecretOutputs(in)

	assert.Equal(t, "ok\n[hoc]:secret:token=<redacted>\n[hoc]:out:ip=1\n", got)
	assert.Equal(t, "plain", scrubSecretOutputs("plain"))
}

func TestValidOutputName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"ip", "node_1", "admin/passwords/local", "a.b-c"} {
		assert.True(t, validOutputName(name), name)
	}
	for _, name := range []string{"", "a b", "a=b", "{x}"} {
		assert.False(t, validOutputName(name), name)
	}
}
