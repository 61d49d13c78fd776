// The package formatting replay consumer member functions and the file
// around them.
package emit

import (
	"strings"

	"replaygen/internal/classify"
	"replaygen/internal/diag"
	"replaygen/internal/registry"
	"replaygen/internal/synth"
)

const indent = "    "

type DeclarationOptions struct {
	// Text put in front of every declaration, e.g. a calling convention macro.
	APICall string
	// Prepended to the command name, e.g. "VulkanReplayConsumer::Process_".
	Prefix string
	// When non-zero, parameter names are aligned at this column.
	AlignColumn int
}

// Declaration formats the consumer member function for a command. Every
// parameter is taken as its carrier type; a non-void return value becomes
// a leading "returnValue" parameter.
func Declaration(cmd registry.Command, carriers []classify.Carrier, options DeclarationOptions) (string, diag.List) {
	var diagnostics diag.List
	var sb strings.Builder
	sb.WriteString(options.APICall)
	sb.WriteString("void ")
	sb.WriteString(options.Prefix)
	sb.WriteString(cmd.Name)

	var params []string
	if cmd.HasReturnValue() {
		if strings.Contains(cmd.ReturnType, "*") {
			diagnostics.Add(diag.Warning, cmd.Name, "", "pointer return values are not currently supported (%s)", cmd.ReturnType)
		}
		params = append(params, parameterDeclaration(cmd.ReturnType, "returnValue", options.AlignColumn))
	}
	for i, param := range cmd.Params {
		params = append(params, parameterDeclaration(carriers[i].Spelling("const ", "&"), param.Name, options.AlignColumn))
	}

	if len(params) == 0 {
		sb.WriteString("()")
	} else {
		sb.WriteString("(\n")
		sb.WriteString(strings.Join(params, ",\n"))
		sb.WriteString(")")
	}

	return sb.String(), diagnostics
}

func parameterDeclaration(paramType, name string, alignColumn int) string {
	decl := indent + paramType
	if alignColumn > 0 {
		decl = strings.TrimRight(decl, " ")
		// Type names longer than the column still get one space.
		if pad := alignColumn - 1 - len(decl); pad > 0 {
			decl += strings.Repeat(" ", pad)
		}
	}
	return decl + " " + name
}

// Body formats the consumer member function body: the setup statements, the
// call itself and the teardown statements.
func Body(callName string, result synth.Result) string {
	var sb strings.Builder
	sb.WriteString("{\n")
	if len(result.Setup) > 0 {
		writeIndented(&sb, result.Setup)
		sb.WriteString("\n")
	}

	sb.WriteString(indent)
	sb.WriteString(callName)
	sb.WriteString("(")
	sb.WriteString(strings.Join(result.Args, ", "))
	sb.WriteString(");\n")

	if len(result.Teardown) > 0 {
		sb.WriteString("\n")
		writeIndented(&sb, result.Teardown)
	}
	sb.WriteString("}\n")
	return sb.String()
}

func writeIndented(sb *strings.Builder, lines []string) {
	for _, line := range lines {
		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}
