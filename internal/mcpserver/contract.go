package mcpserver

import "github.com/starford/specgraph/internal/proposal"

// ProposalFormatContract describes how to write the proposal passed to
// simulate_change, and how spec documents declare their dependencies.
const ProposalFormatContract = `# Specgraph Change Proposal Format

A proposal lists hypothetical changes to the spec tree. Simulating a proposal
never touches the files on disk.

## Syntax

` + proposal.Format + `

## Example

` + "```" + `markdown
## ADDED Specs
- auth/mfa: second factor for login
  - depends: auth/login, users

## MODIFIED
- checkout
  - adds: payments

## REMOVED
- legacy-cart
` + "```" + `

## Spec documents

Each spec lives in ` + "`" + `<id>/spec.md` + "`" + `. Declared dependencies go in the YAML header:

` + "```" + `markdown
---
title: Checkout
depends:
  - cart
  - id: payments
    type: api
    description: charges the card
---
` + "```" + `

Dependency types are ` + "`" + `explicit` + "`" + ` (default), ` + "`" + `api` + "`" + `, ` + "`" + `data` + "`" + ` and ` + "`" + `reference` + "`" + `.
Body mentions such as ` + "`" + `[[cart]]` + "`" + ` become reference edges.
`
