package epubdoc

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"net/url"
	"path"
	"strings"
)

const (
	containerPath = "META-INF/container.xml"
	rightsPath    = "META-INF/rights.xml"
	encryptPath   = "META-INF/encryption.xml"
	opfMediaType  = "application/oebps-package+xml"
)

type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Version  string `xml:"version,attr"`
	Metadata struct {
		Title    []string `xml:"title"`
		Language []string `xml:"language"`
	} `xml:"metadata"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

type encryption struct {
	Data []struct {
		Method struct {
			Algorithm string `xml:"Algorithm,attr"`
		} `xml:"EncryptionMethod"`
		Reference struct {
			URI string `xml:"URI,attr"`
		} `xml:"CipherData>CipherReference"`
	} `xml:"EncryptedData"`
}

// archive indexes the zip entries by name.
type archive struct {
	files map[string]*zip.File
}

func newArchive(zr *zip.Reader) *archive {
	a := &archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.files[f.Name] = f
	}
	return a
}

func (a *archive) read(name string) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, ErrMissingContent
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// checkDRM rejects rights-managed books. Font obfuscation is allowed; an
// encrypted content document is not.
func (a *archive) checkDRM() error {
	if _, ok := a.files[rightsPath]; ok {
		return ErrDRMProtected
	}
	if _, ok := a.files[encryptPath]; !ok {
		return nil
	}

	data, err := a.read(encryptPath)
	if err != nil {
		return ErrDRMProtected
	}
	var enc encryption
	if err := xml.Unmarshal(data, &enc); err != nil {
		return ErrDRMProtected
	}
	for _, d := range enc.Data {
		if strings.Contains(d.Method.Algorithm, "obfuscation") {
			continue
		}
		switch strings.ToLower(path.Ext(d.Reference.URI)) {
		case ".xhtml", ".html", ".htm", ".xml", ".css":
			return ErrDRMProtected
		}
	}
	return nil
}

// rootfile returns the path of the package document.
func (a *archive) rootfile() (string, error) {
	data, err := a.read(containerPath)
	if err != nil {
		return "", ErrNoContainer
	}
	var c container
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", ErrInvalidContainer
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" && (rf.MediaType == opfMediaType || rf.MediaType == "") {
			return rf.FullPath, nil
		}
	}
	if len(c.Rootfiles) > 0 && c.Rootfiles[0].FullPath != "" {
		return c.Rootfiles[0].FullPath, nil
	}
	return "", ErrNoRootfile
}

func (a *archive) packageDocument(opfPath string) (*opfPackage, error) {
	data, err := a.read(opfPath)
	if err != nil {
		return nil, ErrNoOPF
	}
	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, ErrInvalidOPF
	}
	return &pkg, nil
}

// resolve turns a manifest href into an archive entry name.
func resolve(baseDir, href string) string {
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	if baseDir == "." || baseDir == "" {
		return href
	}
	return path.Join(baseDir, href)
}
