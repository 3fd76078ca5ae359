// Copyright 2024 Dolthub, Inc.
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

package diag

import "github.com/sirupsen/logrus"

// LogrusReporter is a logrus-backed Reporter, structuring every
// diagnostic as a logrus field set rather than a formatted string.
type LogrusReporter struct {
	Log *logrus.Logger
}

// NewLogrusReporter builds a LogrusReporter writing to log, or to
// logrus.StandardLogger() if log is nil.
func NewLogrusReporter(log *logrus.Logger) *LogrusReporter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogrusReporter{Log: log}
}

func (r *LogrusReporter) Report(pos Position, severity Severity, title, message string) {
	entry := r.Log.WithFields(logrus.Fields{
		"pos":      pos.String(),
		"severity": severity.String(),
		"title":    title,
	})
	if severity == SeverityError {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}
}
