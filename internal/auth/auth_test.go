package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		sig  Signals
		want State
	}{
		{
			name: "login url with form",
			url:  "https://app.example.com/login",
			sig:  Signals{HasEmailField: true, HasPasswordField: true},
			want: State{IsLoginPage: true, RequiresLogin: true, HasEmailField: true, HasPasswordField: true},
		},
		{
			name: "login url without form",
			url:  "https://example.com/signin?next=/dashboard",
			sig:  Signals{},
			want: State{IsLoginPage: true, RequiresLogin: true},
		},
		{
			name: "oauth url",
			url:  "https://accounts.example.com/oauth/authorize",
			sig:  Signals{},
			want: State{IsLoginPage: true, RequiresLogin: true},
		},
		{
			name: "homepage with visible sign in button",
			url:  "https://linear.app",
			sig:  Signals{LoginButtonText: "sign in"},
			want: State{RequiresLogin: true, HasLoginButton: true, LoginButtonText: "sign in"},
		},
		{
			name: "homepage with login form and button",
			url:  "https://example.com",
			sig:  Signals{HasEmailField: true, HasPasswordField: true, LoginButtonText: "log in"},
			want: State{HasLoginButton: true, LoginButtonText: "log in", HasEmailField: true, HasPasswordField: true},
		},
		{
			name: "plain content page",
			url:  "https://example.com/docs/getting-started",
			sig:  Signals{},
			want: State{},
		},
		{
			name: "email only is not a form",
			url:  "https://example.com/newsletter",
			sig:  Signals{HasEmailField: true},
			want: State{HasEmailField: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want.URL = tt.url
			got := Classify(tt.url, tt.sig)
			assert.Equal(t, tt.want, got)

			// Pure: a second call over the same inputs is identical.
			assert.Equal(t, got, Classify(tt.url, tt.sig))
		})
	}
}

func TestLoginPathURL(t *testing.T) {
	assert.True(t, LoginPathURL("https://app.example.com/login"))
	assert.True(t, LoginPathURL("https://app.example.com/SignIn"))
	assert.True(t, LoginPathURL("https://id.example.com/auth/callback"))
	assert.False(t, LoginPathURL("https://example.com/dashboard"))
	assert.False(t, LoginPathURL("https://example.com/blogin")) // no path separator
}
