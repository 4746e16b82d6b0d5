package bedrockrag

// Version is set at build time with -ldflags "-X github.com/a-h/bedrockrag.Version=...".
var Version = "devel"
