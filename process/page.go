package process

import (
	"fmt"
	"os"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// page is decoded page markup. Results are written back in original encoding.
type page struct {
	html    string
	charset string
	enc     encoding.Encoding
	perm    os.FileMode
}

func readPage(path string) (*page, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read page: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read page: %w", err)
	}

	p := &page{perm: fi.Mode().Perm()}
	p.enc, p.charset, _ = charset.DetermineEncoding(data, "text/html")
	if p.charset == "utf-8" {
		p.html = string(data)
		return p, nil
	}
	decoded, err := p.enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode page from %s: %w", p.charset, err)
	}
	p.html = string(decoded)
	return p, nil
}

func (p *page) write(path, html string) error {
	data := []byte(html)
	if p.charset != "utf-8" {
		var err error
		if data, err = encoding.ReplaceUnsupported(p.enc.NewEncoder()).Bytes(data); err != nil {
			return fmt.Errorf("unable to encode page to %s: %w", p.charset, err)
		}
	}
	if err := os.WriteFile(path, data, p.perm); err != nil {
		return fmt.Errorf("unable to write page: %w", err)
	}
	return nil
}
