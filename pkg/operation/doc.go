/*
Package operation runs the two parflow batches.

	+-------------+        +--------------+
	|  Customize  |        |  Distribute  |
	+------+------+        +------+-------+
	       |                      |
	  rules, parfile       mapping, staging, status
	       |                      |
	       +----------+-----------+
	                  |
	            +-----+-----+
	            |  Runner   |
	            +-----------+

🎯 Purpose:
- Customize patches par files with the rule table of their batch code
- Distribute copies mapped files into the dated webdav tree
- Both turn their outcome into the exit code the scheduler expects

🔄 Customize flow:
 1. Feature gate from the properties file (bypassed by ForceFeature)
 2. Load and validate rules, resolve DATE_MOIS_PRECEDENT
 3. Find par files, apply each batch code's rules, save through the archiver

🔄 Distribute flow:
 1. Load the mapping table and build the copy plan
 2. Purge every purge=YES destination once
 3. Run DONE destinations first, then WAIT, then the rest
 4. Per file: skip WAIT copies of jobs already in DONE, skip existing files,
    copy the others

🚪 Exit codes:

	customize   0 ok, 1 no par file, 10 no valid rule, 20 rule application failed
	distribute  0 ok, 1 bad arguments, 2 mapping missing, 3 mapping invalid,
	            4 nothing to copy, 5 runtime error

Everything runs on the calling goroutine; the first filesystem failure stops
the run and leaves earlier effects in place.
*/
package operation
