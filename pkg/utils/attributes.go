/*
Copyright 2019 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Base64ToMap decodes a base64-encoded JSON object of string values, the
// form message attributes take when passed through a single env var.
func Base64ToMap(s string) (map[string]string, error) {
	if s == "" {
		return nil, errors.New("base64 map string is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 map: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding JSON map: %w", err)
	}
	return m, nil
}

// MapToBase64 is the inverse of Base64ToMap.
func MapToBase64(m map[string]string) (string, error) {
	if m == nil {
		return "", errors.New("map is nil")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
