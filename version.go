package durafsm

// Version is the module version, set at build time with
// -ldflags "-X github.com/aretw0/durafsm.Version=v1.2.3".
var Version = "dev"
