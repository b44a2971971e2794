package exnest

// Version is the SDK release version, reported in the User-Agent header.
const Version = "1.0.0"

const defaultUserAgent = "ExnestAI-Go-Client/" + Version
