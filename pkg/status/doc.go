/*
Package status performs the filesystem effects of a distribution run and
tracks what happened to every planned file.

	            +-------------+
	            |  operation  |
	            | (Distribute)|
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|  Manager  |           | Report  |
	|   (disk)  |           | (UI/UX) |
	+-----------+           +---------+

🎯 Purpose:
- Creates destination directories, copies, removes and purges files
- Tracks one outcome per file (copied, skipped, removed, purged, failed)
- Renders a per-destination summary table

🔄 Flow:
1. Distribute asks the FileManager for every disk effect
2. Each outcome is tracked in the Report
3. The Report is rendered once at the end of the run

🤝 Interfaces:
- FileManager: disk effects, swapped out in tests
- FileFormatter: formats outcome and progress messages
*/
package status
