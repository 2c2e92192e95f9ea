package rules

// Builtin returns a registry populated with every built-in rule.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister("required-sections", newRequiredSections)
	r.MustRegister("title-heading", newTitleHeading)
	r.MustRegister("requirement-count", newRequirementCount)
	r.MustRegister("setup-boilerplate", newSetupBoilerplate)
	r.MustRegister("deliverable-artifact", newDeliverableArtifact)
	r.MustRegister("vague-language", newVagueLanguage)
	r.MustRegister("duplicate-title", newDuplicateTitle)
	r.MustRegister("boilerplate-drift", newBoilerplateDrift)
	return r
}
