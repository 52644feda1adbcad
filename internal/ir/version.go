package ir

// Version is the definition encoding version. It is part of the fingerprint
// domain, so journals written under another version fail replay's hash
// check. Bump when MarshalDefinition's output changes.
const Version = "1"
