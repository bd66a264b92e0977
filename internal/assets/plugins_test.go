package assets

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/webprofile/internal/profile"
)

func TestMatchAlias(t *testing.T) {
	aliases := map[string]string{
		"root":       "/proj/src/app",
		"components": "/proj/src/app/components",
	}

	tests := []struct {
		name     string
		path     string
		expected string
		ok       bool
	}{
		{name: "bare alias", path: "components", expected: "/proj/src/app/components", ok: true},
		{name: "alias with subpath", path: "components/button/index", expected: filepath.Join("/proj/src/app/components", "button", "index"), ok: true},
		{name: "root alias", path: "root/app", expected: filepath.Join("/proj/src/app", "app"), ok: true},
		{name: "prefix is not an alias", path: "componentsx/button", ok: false},
		{name: "package import", path: "react", ok: false},
		{name: "relative import", path: "./components", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := matchAlias(aliases, tt.path)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.expected, target)
		})
	}
}

func TestInlineLoader(t *testing.T) {
	limit := profile.InlineThresholdBytes
	rule := profile.AssetRule{Handler: profile.HandlerInlineableImage, InlineThresholdBytes: &limit}

	require.Equal(t, api.LoaderDataURL, inlineLoader(rule, 0))
	require.Equal(t, api.LoaderDataURL, inlineLoader(rule, int64(limit-1)))
	require.Equal(t, api.LoaderFile, inlineLoader(rule, int64(limit)))
	require.Equal(t, api.LoaderFile, inlineLoader(profile.AssetRule{Handler: profile.HandlerFont}, 1))
}

func TestStyleModule(t *testing.T) {
	js, err := styleModule([]byte("body { content: \"</style>\"; }\n"))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(js, `const style = document.createElement("style");`))
	require.Contains(t, js, `style.textContent = "body { content: \"\u003c/style\u003e\"; }\n";`)
	require.NotContains(t, js, "</style>")
	require.Contains(t, js, "document.head.appendChild(style);")
}
