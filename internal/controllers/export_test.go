package controllers

// InvalidServiceMessage exposes invalidServiceMessage to the external test
// package, which cannot import it directly.
const InvalidServiceMessage = invalidServiceMessage
