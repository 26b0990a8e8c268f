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

package text_test

import (
	"context"
	"fmt"

	"github.com/walteh/assetcopy/pkg/text"
)

func ExampleSimpleTextReplacer_ReplaceText() {
	rules := []text.ReplacementRule{
		{FromText: "__CDN__", ToText: "https://cdn.example.com", FileFilterGlob: "**/*.css"},
		{FromText: "__VERSION__", ToText: "1.4.2"},
	}

	r := text.NewSimpleTextReplacer()
	for _, name := range []string{"styles/site.css", "scripts/app.js"} {
		res, err := r.ReplaceText(context.Background(), name, []byte("url(__CDN__/bg.png) /* __VERSION__ */"), rules)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("%s (%d): %s\n", name, res.ReplacementCount, res.ModifiedContent)
	}

	// Output:
	// styles/site.css (2): url(https://cdn.example.com/bg.png) /* 1.4.2 */
	// scripts/app.js (1): url(__CDN__/bg.png) /* 1.4.2 */
}
