package app

import (
	"github.com/vk/runwire/manifest"
	"github.com/vk/runwire/modules/env"
	"github.com/vk/runwire/modules/printer"
	"github.com/vk/runwire/modules/workdir"
)

// coreModules are the built-in handlers every binary ships with.
var coreModules = []manifest.Module{
	&env.Module{},
	&printer.Module{},
	&workdir.Module{},
}
