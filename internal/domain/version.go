package domain

// SDKVersion is reported in the User-Agent header and analytics metadata
const SDKVersion = "1.4.0"

// SDKPlatform identifies this SDK to the gateway
const SDKPlatform = "go"
