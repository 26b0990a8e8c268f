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
Package status writes emitted assets into an output filesystem and tracks
what each write did.

	            +-------------+
	            |   Manager   |
	            +------+------+
	                   |
	      +------------+-----------+
	      |                        |
	+-----+------+          +------+-----+
	|   billy    |          |  FileInfo  |
	| Filesystem |          |  tracking  |
	+------------+          +------------+

🎯 Purpose:
- Writes assets atomically (temp file in the target directory, then rename)
- Skips writes whose bytes already match the output
- Reports new, modified, unchanged and deleted files

🔄 Flow:
1. Host settles the emit phase
2. Each compilation asset goes through WriteFile
3. Summary feeds the CLI report

🤝 Interfaces:
- FileFormatter: describes writes for the user
*/
package status
