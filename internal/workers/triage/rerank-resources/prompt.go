package rerankresources

const instruction = `You help a person find local support services. [INPUT JSON] lists nearby
candidates, the person's own description of their constraints, and a summary of their
needs.

Pick up to 3 candidates that best fit the person's needs.
- Skip any candidate that clearly violates the stated constraints (cost, transit, hours,
  accessibility, language).
- Refer to candidates only by their "index" from the list.
- rationale is one short sentence addressed to the person explaining why the place fits.
Return a JSON array of {"index", "rationale"} objects, best match first.`
