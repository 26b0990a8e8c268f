// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config loads assetcopy configuration files.

🎯 Purpose:
- Parses YAML, JSON, TOML and HCL into one File type
- Validates patterns and plugin options before anything runs
- Resolves the build root and output root relative to the config file

🔄 Flow:
1. Load picks a Parser by file extension
2. The parser checks that patterns is a sequence (ErrPatternsNotArray otherwise)
3. The parser decodes into File, rejecting unknown fields
4. Load anchors Context and Output, then validates

🤝 Interfaces:
- Parser: format-specific parsing, registered with Register

🔍 Example:

	patterns:
	  - from: static
	    to: assets/
	    ignore: ["maps/**"]
	  - from: "src/*.txt"
	    to: "txt/[name].[hash].[ext]"
	options:
	  debug: info
	  manifest:
	    basePath: /cdn
*/
package config
