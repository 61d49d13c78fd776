package registry

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// XML layout of a Khronos style API registry. Only the parts needed to
// enumerate commands, their parameters and the type categories are read.
type xmlRegistry struct {
	Platforms  []xmlPlatform  `xml:"platforms>platform"`
	Types      []xmlType      `xml:"types>type"`
	Commands   []xmlCommand   `xml:"commands>command"`
	Features   []xmlFeature   `xml:"feature"`
	Extensions []xmlExtension `xml:"extensions>extension"`
}

type xmlPlatform struct {
	Name    string `xml:"name,attr"`
	Protect string `xml:"protect,attr"`
}

type xmlType struct {
	Category string `xml:"category,attr"`
	Name     string `xml:"name,attr"`
	Requires string `xml:"requires,attr"`
	NameElem string `xml:"name"`
}

type xmlCommand struct {
	Name   string           `xml:"name,attr"`
	Alias  string           `xml:"alias,attr"`
	API    string           `xml:"api,attr"`
	Proto  xmlDeclaration   `xml:"proto"`
	Params []xmlDeclaration `xml:"param"`
}

type xmlRequire struct {
	Commands []struct {
		Name string `xml:"name,attr"`
	} `xml:"command"`
}

type xmlFeature struct {
	Name     string       `xml:"name,attr"`
	API      string       `xml:"api,attr"`
	Requires []xmlRequire `xml:"require"`
}

type xmlExtension struct {
	Name      string       `xml:"name,attr"`
	Platform  string       `xml:"platform,attr"`
	Protect   string       `xml:"protect,attr"`
	Supported string       `xml:"supported,attr"`
	Requires  []xmlRequire `xml:"require"`
}

// xmlDeclaration is a <proto>, <param> or <member> element. Its mixed content
// is split around the nested <type> and <name> elements, e.g.
// "const <type>VkFoo</type>* <name>pFoo</name>[<enum>N</enum>]".
type xmlDeclaration struct {
	Len      string
	AltLen   string
	API      string
	Optional string

	prefix   string
	typeName string
	middle   string
	name     string
	tail     string
}

func (decl *xmlDeclaration) UnmarshalXML(decoder *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "len":
			decl.Len = attr.Value
		case "altlen":
			decl.AltLen = attr.Value
		case "api":
			decl.API = attr.Value
		case "optional":
			decl.Optional = attr.Value
		}
	}

	// 0: before <type>, 1: between <type> and <name>, 2: after <name>.
	part := 0
	for {
		token, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("reading <%s>: %w", start.Name.Local, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			var text string
			if err := decoder.DecodeElement(&text, &t); err != nil {
				return fmt.Errorf("reading <%s>: %w", t.Name.Local, err)
			}
			switch t.Name.Local {
			case "type":
				decl.typeName = text
				part = 1
			case "name":
				decl.name = text
				part = 2
			case "comment":
			default:
				decl.appendText(part, text)
			}
		case xml.CharData:
			decl.appendText(part, string(t))
		case xml.EndElement:
			return nil
		}
	}
}

func (decl *xmlDeclaration) appendText(part int, text string) {
	switch part {
	case 0:
		decl.prefix += text
	case 1:
		decl.middle += text
	default:
		decl.tail += text
	}
}

// length returns the length attribute, preferring altlen when len is a
// latexmath formula.
func (decl *xmlDeclaration) length() string {
	if strings.HasPrefix(decl.Len, "latexmath:") {
		return decl.AltLen
	}
	return decl.Len
}

func (decl *xmlDeclaration) parameter() Parameter {
	param := Parameter{
		Name:         decl.name,
		Type:         decl.typeName,
		PointerDepth: strings.Count(decl.middle, "*"),
		IsConst:      strings.Contains(decl.prefix, "const"),
		Length:       decl.length(),
		Spelling:     strings.Join(strings.Fields(decl.prefix+decl.typeName+decl.middle), " "),
		Optional:     strings.Split(decl.Optional, ",")[0] == "true", // The first value applies to the pointer itself.
	}

	if start := strings.Index(decl.tail, "["); start >= 0 {
		param.IsStaticArray = true
		if end := strings.Index(decl.tail, "]"); end > start {
			param.ArrayExtent = strings.TrimSpace(decl.tail[start+1 : end])
		}
	}

	return param
}

func matchesAPI(attribute, api string) bool {
	return attribute == "" || api == "" || slices.Contains(strings.Split(attribute, ","), api)
}

// ReadXMLFile reads the registry file at the given path. See ReadXML.
func ReadXMLFile(path string, api string, configure ...func(*Builder)) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadXML(file, api, configure...)
}

// ReadXML reads an API registry. Elements restricted to other APIs than the
// given one are dropped; an empty api keeps everything. The configure
// callbacks run on the type builder after the registry types have been added
// and before the TypeRegistry snapshot is taken.
func ReadXML(reader io.Reader, api string, configure ...func(*Builder)) (*Document, error) {
	var root xmlRegistry
	if err := xml.NewDecoder(reader).Decode(&root); err != nil {
		return nil, fmt.Errorf("could not decode registry: %w", err)
	}

	builder := NewBuilder()
	for _, typ := range root.Types {
		name := typ.Name
		if name == "" {
			name = typ.NameElem
		}

		switch typ.Category {
		case "struct", "union":
			builder.AddStructs(name)
		case "handle":
			builder.AddHandles(name)
		case "enum", "bitmask", "basetype":
			builder.AddScalars(name)
		case "funcpointer":
			builder.AddFunctionPointers(name)
		case "":
			// Platform types pulled in from other headers.
			if typ.Requires != "" && builder.Category(name) == CategoryUnknown {
				builder.AddScalars(name)
			}
		}
	}

	for _, fn := range configure {
		fn(builder)
	}

	document := &Document{
		Types:    builder.Build(),
		Commands: make(map[string]Command),
	}

	var aliases []xmlCommand
	for _, cmd := range root.Commands {
		if !matchesAPI(cmd.API, api) {
			continue
		}
		if cmd.Alias != "" {
			aliases = append(aliases, cmd)
			continue
		}

		command := Command{Name: cmd.Proto.name}
		if returnType := strings.TrimSpace(cmd.Proto.prefix + cmd.Proto.typeName + cmd.Proto.middle); returnType != "void" {
			command.ReturnType = returnType
		}
		for _, param := range cmd.Params {
			if matchesAPI(param.API, api) {
				command.Params = append(command.Params, param.parameter())
			}
		}
		document.Commands[command.Name] = command
	}

	for _, alias := range aliases {
		target, found := document.Commands[alias.Alias]
		if !found {
			return nil, fmt.Errorf("command %s is an alias of unknown command %s", alias.Name, alias.Alias)
		}
		target.Name = alias.Name
		document.Commands[alias.Name] = target
	}

	platforms := make(map[string]string, len(root.Platforms))
	for _, platform := range root.Platforms {
		platforms[platform.Name] = platform.Protect
	}

	for _, feature := range root.Features {
		if matchesAPI(feature.API, api) {
			document.Features = append(document.Features, Feature{
				Name:     feature.Name,
				Commands: requiredCommands(feature.Requires),
			})
		}
	}

	for _, extension := range root.Extensions {
		if extension.Supported == "disabled" || !matchesAPI(extension.Supported, api) {
			continue
		}
		protect := extension.Protect
		if protect == "" {
			protect = platforms[extension.Platform]
		}
		document.Features = append(document.Features, Feature{
			Name:     extension.Name,
			Protect:  protect,
			Commands: requiredCommands(extension.Requires),
		})
	}

	return document, nil
}

func requiredCommands(requires []xmlRequire) []string {
	var names []string
	for _, require := range requires {
		for _, command := range require.Commands {
			if !slices.Contains(names, command.Name) {
				names = append(names, command.Name)
			}
		}
	}
	return names
}
