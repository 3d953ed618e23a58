// Package model defines the data types shared by the factory, the pair and
// token contracts, the client and the CLI.
//
// Conventions:
//   - Identities (owners, contracts, liquidity tokens): validated lowercase strings
//   - Template references (code ids): uint64
//   - Asset descriptors: tagged AssetInfo values, never bare strings
//   - JSON field names follow the pair contract wire format (snake_case)
package model
