// Package auth provides the identity and access control core of the job
// board: account registration, password authentication, token issuance and
// tenant scoped authorization.
//
// Tenancy:
//   - A Company is a tenant. Owner accounts register the company together
//     with its address in one transaction. Employees are provisioned by an
//     owner and always belong to the owner's company.
//   - Deleting a company removes its accounts, address, offers and the
//     applications of those offers.
//
// Principals and tokens:
//   - TokenService issues HS256 tokens whose claims snapshot the account at
//     login. Tokens are stateless and stay valid until they expire.
//   - Validate resolves a token back into a Principal. The HTTP layer stores
//     it in the request context once, see WithPrincipal.
//
// Authorization:
//   - TenantAuthorizer allows an operation when the principal is the target
//     account or shares its tenant. Password and email changes need update,
//     create and read clearance at once, see ProfileChangeOperations.
package auth
