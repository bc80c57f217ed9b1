// Package scenario holds the fixed context-variable enumerations that seed
// synthetic penetration-testing scenarios, and the selection logic that
// picks one value from each.
package scenario

import "math/rand"

// Phases enumerates engagement phases.
var Phases = []string{
	"Reconnaissance", "OSINT", "Network Mapping", "Vulnerability Scanning",
	"Exploitation", "Credential Attacks", "Lateral Movement", "Privilege Escalation",
	"Persistence", "Post-Exploitation", "Data Exfiltration", "Active Defense Evasion",
	"Social Engineering", "Web Application Testing", "Mobile Application Testing",
	"Cloud Security Testing", "Wireless Security Testing", "Physical Security Testing",
	"Red Team Operations", "Blue Team Simulation", "Incident Response Testing",
	"API Security Testing", "Hardware / IoT Security Testing", "Supply Chain Security Testing",
	"Reporting",
}

// Environments enumerates target environments.
var Environments = []string{
	"Cloud (AWS)", "Cloud (Azure)", "Cloud (GCP)", "Internal Network", "External Network",
	"Wireless Networks", "Web Applications", "Mobile Applications", "Industrial Control Systems",
	"IoT Devices", "DevOps Environments", "Active Directory", "Containerized Environments",
	"Serverless Architectures", "Embedded Systems", "API Security", "Blockchain & Cryptocurrency",
	"Zero Trust Architectures", "AI/ML Workloads", "5G and Telecom Networks",
}

// EngagementTypes enumerates engagement types.
var EngagementTypes = []string{
	"Black Box", "Gray Box", "White Box", "Red Team", "Purple Team", "Adversary Emulation",
	"Physical Penetration Testing", "Social Engineering", "Bug Bounty Testing", "Compliance Testing",
	"Threat Hunting Simulation", "Supply Chain Security Testing", "Active vs. Passive Testing",
	"Continuous Penetration Testing", "Cloud Red Teaming",
}

// Constraints enumerates engagement constraints.
var Constraints = []string{
	"Stealth required", "Limited privileges", "Time-constrained", "Avoid service disruption",
	"Limited toolset", "Compliance restrictions", "Physical access required", "No internet connectivity",
	"Defender actively monitoring", "Covert exfiltration required", "EDR bypass needed", "Firewall restrictions",
	"Cloud-based only", "No shell access", "MFA enforced", "Security awareness testing", "Legacy systems involved",
	"Virtualized environments only", "AI-driven detections active", "Insider Threat Simulation",
}

// Context is one value selected from each enumeration.
type Context struct {
	Phase          string
	Environment    string
	EngagementType string
	Constraint     string
}

// Select picks one value from each enumeration using the supplied source.
// Selection is explicit and reproducible: the same source state yields the
// same Context, which tests rely on.
func Select(rng *rand.Rand) Context {
	return Context{
		Phase:          Phases[rng.Intn(len(Phases))],
		Environment:    Environments[rng.Intn(len(Environments))],
		EngagementType: EngagementTypes[rng.Intn(len(EngagementTypes))],
		Constraint:     Constraints[rng.Intn(len(Constraints))],
	}
}
