// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import "hillview.dev/dataset/internal/dserrors"

// Error is the typed error value for every failure kind in spec.md
// section 7 except Cancelled, which surfaces as the context's own error
// (context.Canceled) rather than as an *Error. Use errors.As to recover
// it and inspect Code.
type Error = dserrors.Error

// Code identifies one of the error kinds below.
type Code = dserrors.Code

// The error kinds named in spec.md section 7.
const (
	CodeUserCodeFailure = dserrors.CodeUserCodeFailure
	CodeTypeMismatch    = dserrors.CodeTypeMismatch
	CodeShapeMismatch   = dserrors.CodeShapeMismatch
	CodeObjectNotFound  = dserrors.CodeObjectNotFound
	CodeSessionBusy     = dserrors.CodeSessionBusy
	CodeTransportError  = dserrors.CodeTransportError
	CodeCancelled       = dserrors.CodeCancelled
)
