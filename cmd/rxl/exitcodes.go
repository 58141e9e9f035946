package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or invalid config)
	ExitDataError   = 3 // Data error (unreadable input, output write failure)
	ExitSchemaError = 4 // Input table is missing required columns
	ExitAPIError    = 5 // Collaborator API error (bioRxiv first page failed)
)
