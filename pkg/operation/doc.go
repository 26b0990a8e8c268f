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
Package operation runs the patterns of one emit cycle.

	+-----------+     +-----------+     +-----------+
	|  Pattern  | --> |  Resolve  | --> |   Copy    |
	|  (config) |     | (absolute)|     | (assets)  |
	+-----------+     +-----------+     +-----+-----+
	                                          |
	                                    next pattern
	                                          |
	                                    +-----v-----+
	                                    | Manifest  |
	                                    +-----------+

🎯 Purpose:
- Process patterns strictly one after another, in declared order
- Stop at the first pattern that fails and report exactly one error
- Emit the manifest once every pattern succeeded

🔄 Flow:
1. Pipeline.Run copies the patterns and back-fills manifest base paths
2. Each pattern is resolved against the cycle root and output
3. The executor reads the pattern's files in parallel, then emits them in order
4. The manifest (when enabled) is serialized and emitted as one more asset
5. done is signalled exactly once, whatever happened

⚡ Executor skips:
- destinations already written earlier in the same cycle
- destinations the compilation already has, unless the pattern forces
- files whose content did not change since the last cycle, unless copyUnmodified

🔍 Example:

	exec, err := operation.NewExecutor(osfs.New("/"), nil)
	if err != nil {
		return err
	}
	p := operation.NewPipeline(operation.NewResolver(osfs.New("/")), exec, nil)
	p.Run(ctx, patterns, cycle, &manifestOpts, done)
*/
package operation
