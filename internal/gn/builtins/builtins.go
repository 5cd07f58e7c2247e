// Copyright 2021 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package builtins names the identifiers the language server considers
// always-defined regardless of what any file declares: the `true`/`false`
// keywords and GN's built-in functions and target types (§6's "Name
// conventions").
package builtins

// Functions is the set of built-in function names that are always
// considered called, never undefined, and are not subject to import
// resolution the way a user-defined template name is.
var Functions = map[string]bool{
	"assert":                   true,
	"config":                   true,
	"declare_args":             true,
	"defined":                  true,
	"exec_script":              true,
	"filter_exclude":           true,
	"filter_include":           true,
	"foreach":                  true,
	"forward_variables_from":   true,
	"get_label_info":           true,
	"get_path_info":            true,
	"get_target_outputs":       true,
	"getenv":                   true,
	"import":                   true,
	"pool":                     true,
	"print":                    true,
	"process_file_template":    true,
	"read_file":                true,
	"rebase_path":              true,
	"set_default_toolchain":    true,
	"set_defaults":             true,
	"split_list":               true,
	"string_join":              true,
	"string_replace":           true,
	"string_split":             true,
	"template":                 true,
	"toolchain":                true,
	"tool":                     true,
	"write_file":               true,
}

// TargetTypes is the set of built-in target-declaring function names
// (`action("foo") { ... }` and friends).
var TargetTypes = map[string]bool{
	"action":                true,
	"action_foreach":        true,
	"bundle_data":           true,
	"copy":                  true,
	"create_bundle":         true,
	"executable":            true,
	"generated_file":        true,
	"group":                 true,
	"loadable_module":       true,
	"shared_library":        true,
	"source_set":            true,
	"static_library":        true,
	"target":                true,
}

// Symbols is the set of always-defined bare identifiers beyond functions
// and target types: the two boolean literals, plus the variables GN
// itself injects into every scope.
var Symbols = map[string]bool{
	"true":                    true,
	"false":                   true,
	"current_toolchain":       true,
	"default_toolchain":       true,
	"host_os":                 true,
	"host_cpu":                true,
	"target_os":               true,
	"target_cpu":               true,
	"current_os":              true,
	"current_cpu":              true,
	"root_build_dir":          true,
	"root_gen_dir":            true,
	"root_out_dir":            true,
	"target_gen_dir":          true,
	"target_out_dir":          true,
	"python_path":             true,
}

// IsDefined reports whether name is always considered defined,
// independent of anything a file declares.
func IsDefined(name string) bool {
	return Functions[name] || TargetTypes[name] || Symbols[name]
}

// IsCallable reports whether name is a known built-in callable (function
// or target type).
func IsCallable(name string) bool {
	return Functions[name] || TargetTypes[name]
}
