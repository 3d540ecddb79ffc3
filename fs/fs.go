package appfs

import "embed"

// FS holds files baked into the binary, most notably DB migrations.
//go:embed migrations
var FS embed.FS
