package assets

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/wolfeidau/webprofile/internal/profile"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// renderHTML injects the entry scripts and stylesheets into the profile's
// html template and writes the page to the output directory.
func renderHTML(d profile.PluginDirective, outDir string, entries map[string]EntryAssets) (string, error) {
	templatePath := d.GetString("template")

	f, err := os.Open(templatePath)
	if err != nil {
		return "", &profile.ConfigError{Path: templatePath, Err: profile.ErrTemplateMissing}
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templatePath, err)
	}

	out, err := injectAssets(doc, d.GetString("inject"), entries)
	if err != nil {
		return "", err
	}

	target := filepath.Join(outDir, filepath.Base(templatePath))
	if err := writeFile(target, out); err != nil {
		return "", err
	}
	return target, nil
}

func injectAssets(doc *html.Node, inject string, entries map[string]EntryAssets) ([]byte, error) {
	head := findElement(doc, atom.Head)
	body := findElement(doc, atom.Body)
	if head == nil || body == nil {
		return nil, errors.New("template has no head or body element")
	}

	scriptParent := body
	if inject == "head" {
		scriptParent = head
	}

	for _, name := range slices.Sorted(maps.Keys(entries)) {
		assets := entries[name]

		for _, href := range assets.Styles {
			head.AppendChild(element(atom.Link, "rel", "stylesheet", "href", href))
		}
		for _, href := range assets.Chunks {
			head.AppendChild(element(atom.Link, "rel", "modulepreload", "href", href))
		}
		scriptParent.AppendChild(element(atom.Script, "type", "module", "src", assets.Script))
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return buf.Bytes(), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}
