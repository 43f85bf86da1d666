package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/documind-ai/documind-go/internal/orchestrator"
)

// sampleDocuments is the demo corpus seeded by `documind serve --seed`.
// Already-present source names are skipped so seeding is idempotent.
var sampleDocuments = map[string]string{
	"company_policy.txt": `Employee Handbook - Company Policies

Section 1: Working Hours
Standard working hours are 9 AM to 5 PM, Monday through Friday.
Flexible working arrangements may be available upon manager approval.
Remote work is permitted up to 2 days per week for eligible employees.

Section 2: Leave Policy
Full-time employees receive 15 days of paid vacation annually.
Sick leave: 10 days per year, can be carried over up to 5 days.
Parental leave: 12 weeks paid for primary caregivers, 4 weeks for secondary.

Section 3: Benefits
Health insurance is provided through BlueCross starting from day one.
401(k) matching up to 4% of salary after 90 days of employment.
Professional development budget of $2,000 per year.

Section 4: Code of Conduct
All employees must maintain professional behavior at all times.
Harassment of any kind will not be tolerated.
Conflicts of interest must be disclosed to HR immediately.
`,

	"product_guide.txt": `Product User Guide - CloudSync Pro

Getting Started
CloudSync Pro is an enterprise file synchronization solution.
Installation requires administrator privileges on Windows, Mac, or Linux.
Minimum requirements: 4GB RAM, 500MB disk space, internet connection.

Features Overview
1. Real-time Sync: Files sync automatically across all devices.
2. Version History: Access up to 30 days of file versions.
3. Selective Sync: Choose which folders to sync on each device.
4. Conflict Resolution: Smart merging prevents data loss.

Security Features
- End-to-end encryption using AES-256
- Two-factor authentication support
- Admin controls for team permissions
- Audit logs for compliance requirements

Troubleshooting
If sync fails, check internet connection first.
Clear cache: Settings > Advanced > Clear Cache
Contact support: support@cloudsync.example.com
`,

	"technical_spec.txt": `Technical Specification Document
Project: API Gateway v2.0

Architecture Overview
The API Gateway serves as the single entry point for all client requests.
Built on Node.js with Express framework for high performance.
Uses Redis for rate limiting and caching.

Authentication
JWT tokens with 1-hour expiration for access tokens.
Refresh tokens valid for 7 days, stored securely.
OAuth 2.0 support for third-party integrations.

Rate Limiting
Default: 1000 requests per minute per API key.
Premium tier: 10,000 requests per minute.
Burst allowance: 20% above limit for 30 seconds.

Endpoints
GET /api/v2/users - List users (paginated)
POST /api/v2/users - Create new user
GET /api/v2/users/:id - Get user details
PUT /api/v2/users/:id - Update user
DELETE /api/v2/users/:id - Soft delete user

Error Codes
400 - Bad Request (invalid parameters)
401 - Unauthorized (invalid or expired token)
403 - Forbidden (insufficient permissions)
429 - Too Many Requests (rate limit exceeded)
500 - Internal Server Error
`,
}

// seedSampleCorpus ingests the sample documents and waits for each to
// reach a terminal status so the corpus is queryable as soon as the
// server starts accepting requests.
func seedSampleCorpus(ctx context.Context, orch *orchestrator.Orchestrator, log *slog.Logger) error {
	existing, err := orch.ListDocuments(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(existing))
	for _, d := range existing {
		present[d.SourceName] = true
	}

	for name, content := range sampleDocuments {
		if present[name] {
			log.Debug("seed: document already present", slog.String("source_name", name))
			continue
		}

		doc, err := orch.Ingest(ctx, orchestrator.IngestRequest{
			SourceName: name,
			MIMEType:   "text/plain",
			Data:       []byte(content),
		})
		if err != nil {
			return err
		}

		awaitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		final, err := orch.Await(awaitCtx, doc.ID)
		cancel()
		if err != nil {
			return err
		}

		log.Info("seed: document ingested",
			slog.String("source_name", name),
			slog.String("status", string(final.Status)),
		)
	}

	return nil
}
