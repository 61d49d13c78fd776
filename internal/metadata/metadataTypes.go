package metadata

import (
	"replaygen/internal/registry"
)

type Type struct {
	Name         string
	Properties   []Property
	PointerDepth int
	IsConst      bool
	IsArray      bool
	IsBuiltIn    bool
	IsHandle     bool
	IsChar       bool
}

type Property struct {
	Name string
	Type Type
}

type Method struct {
	Name       string
	Params     []Parameter
	ReturnType Type
	DllImport  string
}

type Parameter struct {
	Name       string
	Type       Type
	IsOptional bool
}

// Converts the method into the command model used by the generator.
func (method Method) Command() registry.Command {
	command := registry.Command{Name: method.Name}
	if method.ReturnType.Name != "void" || method.ReturnType.PointerDepth > 0 {
		command.ReturnType = method.ReturnType.spelling()
	}

	for _, param := range method.Params {
		command.Params = append(command.Params, registry.Parameter{
			Name:         param.Name,
			Type:         param.Type.Name,
			PointerDepth: param.Type.PointerDepth,
			IsConst:      param.Type.IsConst,
			Spelling:     param.Type.spelling(),
			Optional:     param.IsOptional && param.Type.PointerDepth > 0,
		})
	}

	return command
}

func (t Type) spelling() string {
	spelling := t.Name
	if t.IsConst {
		spelling = "const " + spelling
	}
	for i := 0; i < t.PointerDepth; i++ {
		spelling += "*"
	}
	return spelling
}
