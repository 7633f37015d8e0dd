/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets validates game resources before they reach the console.
package assets

import (
	"fmt"
	"image"
	"os"

	// Register decoders for the formats game files reference.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// CheckImage verifies that path exists and decodes as a known image format.
// A missing or undecodable image is a fatal interpretation fault upstream.
func CheckImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, format, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	} else if format == "" {
		return fmt.Errorf("decode %s: unknown format", path)
	}
	return nil
}
