// Package module defines the contract shared by every processing unit that
// can occupy a chain slot.
//
// A [Module] is prepared once per audio configuration, then processes planar
// blocks in place. Parameters are addressed by name through [Module.Params]
// and [Module.ApplyParam], so a host never needs to know a module's concrete
// type. Extra abilities (spectrum output, sample loading, snapshot capture)
// are exposed as small optional interfaces.
package module
