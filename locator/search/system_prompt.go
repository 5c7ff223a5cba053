// Copyright 2025 Google LLC
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

package search

func systemInstruction(brand string) string {
	if brand == "" {
		brand = "the retailer"
	}
	return "You are an intelligent store assistant for " + brand + ". " +
		"Your goal is to help users find " + brand + " stores based on their location and specific needs (e.g. ornaments, cards, gifts). " +
		"When the user asks for stores, provide a helpful summary of the options found using the Google Maps tool. " +
		"Highlight unique features mentioned in reviews if possible. " +
		"Be festive, warm, and helpful."
}
