package config

import "strings"

const Version = "0.4.0"

const TreeFileExt = ".yaml"

// TreeFileExtensions are all recognized serialized syntax tree extensions
var TreeFileExtensions = []string{".yaml", ".yml", ".json"}

// SelfName is the hidden binding a method call sees as its receiver.
const SelfName = "me"

// Built-in function names
const (
	PrintFuncName    = "print"
	SizeFuncName     = "size"
	AppendFuncName   = "append"
	TypeOfFuncName   = "typeof"
	KeysFuncName     = "keys"
	ContainsFuncName = "contains"
	NumFuncName      = "num"
	StrFuncName      = "str"
)

// BuiltinNames lists every builtin defined in the global scope.
var BuiltinNames = []string{
	PrintFuncName,
	SizeFuncName,
	AppendFuncName,
	TypeOfFuncName,
	KeysFuncName,
	ContainsFuncName,
	NumFuncName,
	StrFuncName,
}

// Process exit codes
const (
	ExitOK          = 0
	ExitUsage       = 1 // bad flags, unreadable files, history failures
	ExitInvalidTree = 2 // tree failed to decode or validate
	ExitRuntime     = 3 // program stopped on a runtime error
)

// Run states recorded in summaries and history
const (
	StateCompleted = "completed"
	StateError     = "error"
)

// ConfigFileNames are the run configuration files FindConfig looks for.
var ConfigFileNames = []string{"nasal.yaml", "nasal.yml"}

// HasTreeExt reports whether path ends in a recognized tree extension.
func HasTreeExt(path string) bool {
	for _, ext := range TreeFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// TrimTreeExt removes a recognized tree extension from name.
func TrimTreeExt(name string) string {
	for _, ext := range TreeFileExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
