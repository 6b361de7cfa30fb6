/*
 *
 * Copyright 2025 The elegant-threading Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package shmdata

// Outcome is what a transaction handler asks for: replace the document, or
// keep it and write nothing.
type Outcome struct {
	doc     Document
	replace bool
}

// Replace returns an Outcome that stores doc.
func Replace(doc Document) Outcome {
	return Outcome{doc: doc, replace: true}
}

// Keep returns an Outcome that leaves the region untouched.
func Keep() Outcome {
	return Outcome{}
}

// IsReplace reports whether o replaces the document.
func (o Outcome) IsReplace() bool {
	return o.replace
}

// Document returns the replacement document, or nil for Keep.
func (o Outcome) Document() Document {
	return o.doc
}

// Handler computes a transaction's outcome from the current document. It runs
// with the region locked and must not call back into the same region.
//
// prev is returned to the caller of Transact as the previous document, so a
// handler must not modify it. Build the replacement from a copy instead.
type Handler func(prev Document) (Outcome, error)
