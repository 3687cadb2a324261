/*
Package config builds the runtime configuration of parflow.

	+----------+     +-----------+     +-----------+
	| defaults | --> | config    | --> | CLI flags |
	|          |     | file      |     |           |
	+----------+     +-----+-----+     +-----+-----+
	                       |                 |
	           +-----------+--+--------+     |
	           |              |        |     v
	      +----+----+   +-----+--+ +---+---+ Config
	      |  YAML   |   |  HCL   | | JSON  |
	      +---------+   +--------+ +-------+

🎯 Purpose:
- Reproduces the production paths of both batches as defaults
- Lets a config file move any of them (tests, staging servers)
- Applies command line overrides last and validates once
- Reads the customizer feature gate from its properties file

🔄 Flow:
 1. LoadFile parses the optional file, format chosen by extension
 2. Build merges defaults, file and Overrides
 3. Validate checks required settings
 4. The resulting Config is passed by value to each operation

🚦 Feature gate:

	# customizer_pars.properties
	function_enable=yes
	function_enable_archive_original_files=no

A missing properties file disables the customizer unless the run forces it.

🔍 Example:

	file, err := config.LoadFile(ctx, "parflow.hcl")
	if err != nil {
		return err
	}
	cfg, err := config.Build(file, config.Overrides{Date: "20251223"})
*/
package config
