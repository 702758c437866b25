// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
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

/*
Package config provides a simple way to manage the configuration of the dataflow analyses and the leveled loggers
they write to.

Use [Load](filename) to load a configuration from a specific filename, or [NewDefault] for the default configuration.

A config file is in yaml format. The top-level fields are the fields of [Config]. For example, a valid config file is
as follows:

	options:
	  log-level: 4
	  show-empty: true
	  reports-dir: reports
	function-filter: "^handle"

The function filter is seen as a regex if it can be compiled to a regex, otherwise it is a prefix of the names of the
functions to analyze.
*/
package config
