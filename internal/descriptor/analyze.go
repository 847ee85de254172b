package descriptor

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Attribute names the analysis and rewrite depend on. The rewriter depends
// only on these names and the semicolon delimiter convention, not on full
// schema validity.
const (
	AttrIncludeDirs     = "c_user_include_directories"
	AttrFileName        = "file_name"
	AttrLinkerPlacement = "linker_section_placement_file"
	AttrDebugLoadFile   = "debug_additional_load_file"
	AttrDebugRegisters  = "debug_register_definition_file"
)

// PathAttrs are the single-valued path attributes carried by the Common
// configuration element.
var PathAttrs = []string{
	AttrLinkerPlacement,
	AttrDebugLoadFile,
	AttrDebugRegisters,
}

// commonConfigName is the Name of the configuration element the analysis
// reads path attributes from.
const commonConfigName = "Common"

// Analysis holds the path references extracted from a project descriptor.
type Analysis struct {
	// HasCommon reports whether a <configuration Name="Common"> element
	// was found.
	HasCommon bool
	// IncludeDirs is the raw semicolon-delimited include-directories
	// attribute value from the Common configuration.
	IncludeDirs string
	// Paths maps each single-valued path attribute name to its value on
	// the Common configuration. Absent attributes are absent keys.
	Paths map[string]string
	// Files lists the file_name attribute of every <file> element, in
	// document order.
	Files []string
}

// Analyze scans descriptor XML for the attributes the extraction needs.
// The scan is tolerant of unknown elements and attributes; a syntax error
// is returned so the caller can skip analysis and still copy the raw
// document.
func Analyze(data []byte) (*Analysis, error) {
	a := &Analysis{Paths: make(map[string]string)}

	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing descriptor XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "configuration":
			if attrValue(start, "Name") != commonConfigName {
				continue
			}
			a.HasCommon = true
			a.IncludeDirs = attrValue(start, AttrIncludeDirs)
			for _, name := range PathAttrs {
				if v := attrValue(start, name); v != "" {
					a.Paths[name] = v
				}
			}
		case "file":
			if v := attrValue(start, AttrFileName); v != "" {
				a.Files = append(a.Files, v)
			}
		}
	}

	return a, nil
}

// IncludeList splits the include-directories attribute on semicolons.
// Empty entries are preserved so the caller controls how they are dropped.
func (a *Analysis) IncludeList() []string {
	if a.IncludeDirs == "" {
		return nil
	}
	return strings.Split(a.IncludeDirs, ";")
}

// attrValue returns the named attribute of an element, matching the name
// case-insensitively since attribute casing varies across tool versions.
func attrValue(el xml.StartElement, name string) string {
	for _, attr := range el.Attr {
		if strings.EqualFold(attr.Name.Local, name) {
			return attr.Value
		}
	}
	return ""
}
