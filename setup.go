package script

// Setup populates the process-wide registries with the built-in
// delegates and every engine backend. Hosts call it once at startup,
// before any evaluation; further calls are no-ops because duplicate
// registrations are ignored.
func Setup() {
	RegisterDelegates()
	RegisterLuaEngine()
	RegisterJsEngine()
	RegisterOttoEngine()
	RegisterGoEngine()
}
